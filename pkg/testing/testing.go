package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// cd to the repo root during tests so paths like logs/ resolve the same
	// way they do for the server process. Import for side effect:
	//
	//   import (
	//     _ "structhealth/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	err := os.Chdir(dir)
	if err != nil {
		panic(err)
	}
}
