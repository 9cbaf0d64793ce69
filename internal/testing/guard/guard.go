// Package guard flips the process into test mode when imported from test
// binaries, so package init code never starts runtime side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("OXBOW_TEST_MODE") == "" {
			_ = os.Setenv("OXBOW_TEST_MODE", "1")
		}
	})
}
