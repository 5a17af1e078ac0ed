// Package compiler provides the MiniGopher lexer, parser and semantic
// analyzer. The parser emits postfix code for the stack machine; the CIL
// listing is derived from that postfix code.
//
// Pipeline: .mgo source → Lex → Parse → postfix.Program → cil.Translate
package compiler
