// typist simulates someone typing a query and shows which keystrokes survive the
// debounce. Run it with -delay to see how the quiet period changes the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gleipnir-Technology/settle/debounce"
)

func main() {
	delay := flag.Duration("delay", debounce.DefaultDelay, "quiet period before a query settles")
	text := flag.String("text", "how do goroutines work", "text to type")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	query := debounce.NewComparable(ctx, "", debounce.WithDelay(*delay), debounce.WithName("typist"))
	defer query.Close()
	sub := query.Subscribe()
	go func() {
		for q := range sub.C {
			fmt.Printf("settled: %q\n", q)
		}
	}()

	for i := range *text {
		select {
		case <-ctx.Done():
			fmt.Println("Received SIGINT, shutting down...")
			os.Exit(0)
		// Most keystrokes are quick, the occasional pause is long enough to settle.
		case <-time.After(time.Duration(50+rand.IntN(200)) * time.Millisecond):
		}
		typed := (*text)[:i+1]
		fmt.Fprintf(os.Stderr, "typed:   %q\n", typed)
		query.Observe(typed)
	}
	time.Sleep(*delay + 100*time.Millisecond)
	fmt.Println("Exiting.")
}
