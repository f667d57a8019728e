package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Gleipnir-Technology/settle/process"
)

// Restarts a chatty child a few times to exercise output capture and stopping.
func main() {
	p := process.New("sh", "-c", `i=0; while true; do i=$((i+1)); echo "out $i"; echo "err $i" >&2; sleep 1; done`)
	ctx := context.Background()
	subExit := p.OnExit.Subscribe()
	subStart := p.OnStart.Subscribe()
	subStderr := p.OnStderr.Subscribe()
	subStdout := p.OnStdout.Subscribe()
	defer p.Close()
	if err := p.Start(ctx); err != nil {
		fmt.Printf("start: %v\n", err)
		os.Exit(1)
	}
	count := 0
	timer := time.After(5 * time.Second)
	for {
		select {
		case ps := <-subExit.C:
			fmt.Printf("Child exited: %v\n", ps)
		case <-subStart.C:
			fmt.Println("Child started")
		case b := <-subStderr.C:
			fmt.Printf("child stderr: %s\n", string(b))
		case b := <-subStdout.C:
			fmt.Printf("child stdout: %s\n", string(b))
		case <-timer:
			fmt.Printf("timer elapsed, count %d\n", count)
			if count == 3 {
				return
			}
			count++
			if err := p.Restart(ctx); err != nil {
				fmt.Printf("restart: %v\n", err)
				os.Exit(2)
			}
			timer = time.After(5 * time.Second)
		}
	}
}
