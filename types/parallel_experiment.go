package types

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TERMINAL PRINTER

// TerminalPrinter redraws one line per concurrently running experiment
type TerminalPrinter struct {
	parallelOutputs []*ParallelOutput
	ctx             context.Context
	printerCtx      context.Context
	printerCancel   context.CancelFunc
	frequency       time.Duration
	done            chan struct{}

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(ctx context.Context, parallelOutputs []*ParallelOutput, frequency time.Duration) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	size := len(parallelOutputs)
	writers := make([]io.Writer, 0, size)
	writer := uilive.New()
	for i := 0; i < size-1; i++ {
		writers = append(writers, writer.Newline())
	}

	return &TerminalPrinter{
		parallelOutputs: parallelOutputs,
		ctx:             ctx,
		printerCtx:      printerCtx,
		printerCancel:   cancel,
		frequency:       frequency,
		done:            make(chan struct{}),

		writer:  writer,
		writers: writers,
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-p.printerCtx.Done():
				p.print()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints the final state and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	p.printerCancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	for i, output := range p.parallelOutputs {
		s := output.Get()
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT

// used to update and print experiment outputs
type ParallelOutput struct {
	mu        sync.Mutex
	printable string

	Running bool
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        sync.Mutex{},
		printable: "",

		Running: false,
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	success := p.mu.TryLock()
	if success {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
