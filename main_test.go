package main

import "testing"

func TestMainRunsExecute(t *testing.T) {
	invoked := false
	orig := execute
	execute = func() { invoked = true }
	t.Cleanup(func() { execute = orig })

	main()

	if !invoked {
		t.Fatalf("expected main to invoke the CLI entrypoint")
	}
}
