// Package harness runs YAML store scenarios.
//
// A scenario lists store operations, their expected outcomes and assertions
// on the resulting trace and final state. Each scenario runs against a
// fresh in-memory store whose record ids are sequential ("id-1", "id-2",
// ...), so the bootstrap chats are always id-1 through id-3 and every run
// produces the same trace and snapshot.
//
// # Scenario Format
//
//	name: categories
//	description: "What this scenario validates"
//	options:
//	  min_chat_count: 3
//	setup:
//	  - action: Categories.create
//	    args: { name: Work }
//	    as: work
//	flow:
//	  - invoke: Messages.append
//	    args: { category_id: $work, text: Hello }
//	    expect:
//	      case: ok
//	      result: { text: Hello }
//	assertions:
//	  - type: final_order
//	    table: categories
//	    field: id
//	    values: ["Без категории", id-4]
//
// Options mirror the store options: chat_prefix, min_chat_count,
// uncategorized_id, uncategorized_name and protect_uncategorized.
//
// String arguments of the form $alias are replaced by the id bound with
// "as". The completion case is "ok" or the store error code (NOT_FOUND,
// DUPLICATE, RESERVED, STORAGE_FAULT).
//
// # Actions
//
// Chats.list, Chats.get, Chats.create, Chats.setText, Chats.rename,
// Chats.delete, Categories.list, Categories.get, Categories.create,
// Categories.rename, Categories.delete, Messages.list, Messages.get,
// Messages.append, Messages.setText, Messages.delete, Settings.get and
// Settings.update. Arguments use the snake_case field names of the model.
//
// # Assertion Types
//
//   - trace_contains: an action appears in the trace with matching args
//   - trace_order: actions appear in the specified order
//   - trace_count: an action appears exactly N times
//   - final_state: exactly one row of a table matches where, and its fields match expect
//   - final_order: the ordered values of one field across a table
//   - final_count: the number of rows in a table
//
// Tables are chats, categories, messages (all categories, in view order)
// and settings (a single row).
//
// # Golden Files
//
// RunWithGolden compares the trace and final state against
// testdata/golden/<name>.golden using goldie.
package harness
