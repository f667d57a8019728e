package debounce_test

import (
	"context"
	"fmt"
	"time"

	"github.com/Gleipnir-Technology/settle/debounce"
)

func ExampleHolder() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	query := debounce.New(ctx, "", debounce.WithDelay(50*time.Millisecond))
	defer query.Close()
	sub := query.Subscribe()

	for _, keystroke := range []string{"g", "go", "gop", "gopher"} {
		query.Observe(keystroke)
	}
	fmt.Println(<-sub.C)
	// Output: gopher
}
