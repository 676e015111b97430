/*
Copyright © 2026 The Quill Authors
*/
package main

import "github.com/quillwiki/quill/cmd"

func main() {
	cmd.Execute()
}
