// Package toolcall detects tool invocation directives in free-form model output.
//
// A directive starts with the `TOOL_CALL:` sentinel anywhere in the text,
// followed by the tool name and a parameter payload in one of two syntaxes:
//
//	TOOL_CALL: get_opportunities {"account_id": "1"}     // SyntaxJSON
//	TOOL_CALL: get_opportunities(account_id="1")         // SyntaxKeyValue
//
// Exactly one syntax is active for a Parser. SyntaxJSON is the default.
//
// The key=value form splits the argument list on every comma and ends it at the
// first closing parenthesis: quoted commas and nested parentheses are not supported.
package toolcall
