/*

Process of compilation

Expression Text ->
	scan ->
Tokens (scan.Token) ->
	parse ->
Abstract Syntax Tree (ast) ->
	back ->
Stack Machine Code (asm) ->
	amd64 / arm64 ->
Assembly Text ->
	assemble, link ->
Binary Executable

The executable's exit status is the expression value.
sim runs asm code directly.

*/
package compiler
