package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

var (
	cueSpecDir   = filepath.Join("testdata", "constraints")
	yamlSpec     = filepath.Join("testdata", "slice.yaml")
	legalPlace   = filepath.Join("testdata", "legal.place")
	illegalPlace = filepath.Join("testdata", "illegal.place")
)

// execute runs the root command so global flags and the logger are set up.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
