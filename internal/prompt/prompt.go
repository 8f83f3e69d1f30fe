// Package prompt runs the interactive send loop on a line oriented reader.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	exitCommand = "exit"

	instructions = "Press [enter] to send a msg without partition key.\n" +
		"Type a string and press [enter] to send a msg with partition key.\n" +
		"Type 'exit' and press [enter] to quit.\n"
	readyPrompt = "Ready> "
)

// Sender sends the message with the given sequence number.
type Sender interface {
	Send(ctx context.Context, sequence uint64, partitionKey string) error
}

// Loop reads commands from In and sends one message per line until the
// operator types exit, In reaches EOF, or the context is canceled.
type Loop struct {
	In     io.Reader
	Out    io.Writer
	Sender Sender
}

// Run executes the loop and returns the number of messages sent. A send error
// ends the loop and is returned unchanged. Context cancellation is not an error.
func (l *Loop) Run(ctx context.Context) (uint64, error) {
	lines, readErr := readLines(ctx, l.In)

	var sent uint64
	for {
		fmt.Fprint(l.Out, instructions+readyPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.Out)
			return sent, nil
		case next, ok := <-lines:
			if !ok {
				fmt.Fprintln(l.Out)
				if err := <-readErr; err != nil {
					return sent, fmt.Errorf("failed to read input: %w", err)
				}
				return sent, nil
			}
			line = next
		}

		if strings.EqualFold(line, exitCommand) {
			return sent, nil
		}

		if err := l.send(ctx, sent, line); err != nil {
			return sent, err
		}
		sent++
	}
}

func (l *Loop) send(ctx context.Context, sequence uint64, partitionKey string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sending message with id = ID:sample%d", sequence)
	if partitionKey != "" {
		fmt.Fprintf(&sb, " and partition key = %s", partitionKey)
	}
	fmt.Fprintln(l.Out, sb.String())

	if err := l.Sender.Send(ctx, sequence, partitionKey); err != nil {
		return err
	}
	fmt.Fprintln(l.Out, "Sent message OK")
	return nil
}

// readLines scans r on its own goroutine so a blocked read does not hold up
// cancellation. The goroutine exits at EOF, on a read error, or once ctx is
// done and the next line arrives.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()
	return lines, errCh
}
