// Package git reads commit history with go-git to report when and by whom
// each source file was last changed.
package git
