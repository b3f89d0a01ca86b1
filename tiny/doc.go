// Package tiny implements the TinyScript interpreter. The language is small
// and line oriented:
//   - Assignments `name = expr` and function definitions
//     `func name(a, b)` followed by a body indented by four spaces.
//   - `if cond` and `while cond` blocks whose bodies hold only assignments
//     and `return` statements.
//   - Literals for numbers, text and bools, plus array literals `[a, b]`.
//   - Binary operators + - * / == != and/or, one application per level.
//   - Indexing `arr[i]`, the `length` member, and the `starts_with` method.
//
// Parse turns source text into a Program and Engine.Run executes it,
// returning the final top-level variable bindings. Every failure is
// reported as an error value: *ParseError for syntax, *RuntimeError for
// everything detected during evaluation.
package tiny
