package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/driftchat/driftchat-server/pkg/client"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chatcli: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "user id to connect as")
	peer := flag.String("peer", "", "user id to chat with")
	token := flag.String("token", "", "bootstrap token (mint one with 'driftchat-server token')")
	flag.Parse()

	if *peer == "" {
		return fmt.Errorf("-peer is required")
	}
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers := client.Handlers{
		OnPresence: func(users []string) {
			fmt.Printf("* online: %s\n", strings.Join(users, ", "))
		},
		OnMessage: func(msg client.Message) {
			ts := time.Unix(msg.TS, 0).Format("15:04:05")
			if msg.Kind == client.UnitImage {
				fmt.Printf("[%s] %s sent an image (%d bytes)\n", ts, msg.From, len(msg.Body))
				return
			}
			fmt.Printf("[%s] %s: %s\n", ts, msg.From, msg.Body)
		},
		OnHistory: func(with string, msgs []client.Message) {
			fmt.Printf("* history with %s: %d messages\n", with, len(msgs))
			for _, msg := range msgs {
				if msg.Kind == client.UnitImage {
					fmt.Printf("  %s sent an image\n", msg.From)
					continue
				}
				fmt.Printf("  %s: %s\n", msg.From, msg.Body)
			}
		},
		OnError: func(code, msg string) {
			fmt.Printf("! %s: %s\n", code, msg)
		},
		OnClosed: func(err error) {
			fmt.Println("* connection closed")
			stop()
		},
	}

	binder := client.NewBinder(client.ServerDialer(*addr, func(string) (string, error) {
		return *token, nil
	}, handlers, nil), nil)
	defer binder.Close()

	if err := binder.OnAuthChange(ctx, *user); err != nil {
		return err
	}

	conn, ok := binder.Session().(*client.Conn)
	if !ok {
		return fmt.Errorf("no session bound")
	}
	dispatcher := client.NewDispatcher(conn)

	if err := conn.RequestHistory(ctx, *peer); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s, chatting with %s\n", *addr, *user, *peer)
	fmt.Println("Type messages and press Enter to send. '/img <data>' sends an image unit. Ctrl+C to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			sub := client.Submission{To: *peer, Text: line}
			if rest, found := strings.CutPrefix(line, "/img "); found {
				sub = client.Submission{To: *peer, Image: strings.TrimSpace(rest)}
			}

			if err := dispatcher.Dispatch(ctx, sub); err != nil {
				fmt.Printf("! send failed: %v\n", err)
			}
		}
	}
}
