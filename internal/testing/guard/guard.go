package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("NOTICEBOARD_TEST_MODE") == "" {
			_ = os.Setenv("NOTICEBOARD_TEST_MODE", "1")
		}
	})
}
