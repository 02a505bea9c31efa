package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/alexflint/go-arg"

	"gptchat/console"
	"gptchat/tools/client/clients/ai"
)

type args struct {
	Endpoint string `arg:"--endpoint,-e" default:"http://localhost:8640" help:"gptchat serve endpoint"`
}

func main() {
	var args args
	arg.MustParse(&args)

	client := ai.NewClient(args.Endpoint)
	handler := NewChatLineHandler(client)
	controller := console.NewController(handler, console.NewDefaultOptions())
	if err := controller.Run(); err != nil {
		log.Fatal(err)
	}
}

type ChatLineHandler struct {
	client      *ai.V1Client
	initialized bool
	sessionID   int
}

func NewChatLineHandler(client *ai.V1Client) *ChatLineHandler {
	return &ChatLineHandler{client: client}
}

const (
	initLinePrefix = "init"
	listLine       = "list"
)

func checkAndParseInitLine(s string) (isInitLine bool, createSession bool, oldSessionID int) {
	rest, found := strings.CutPrefix(s, initLinePrefix)
	if !found {
		return false, false, 0
	}
	if rest == "" {
		return true, true, 0
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return false, false, 0
	}
	return true, false, id
}

// HandleLine serves one line, a Ctrl-C meanwhile aborts only this line.
func (h *ChatLineHandler) HandleLine(line string) {
	ctx, stop := console.WithInterrupt(context.Background())
	defer stop()

	if line == listLine {
		h.list(ctx)
		return
	}
	isInitLine, createSession, id := checkAndParseInitLine(line)
	if !isInitLine && !h.initialized {
		fmt.Printf("Type \"%s\" to initialize.\nType \"%s 4\" to continue session ID 4\nType \"%s\" to list sessions\n",
			initLinePrefix, initLinePrefix, listLine)
		return
	}
	if isInitLine {
		if createSession {
			fmt.Println("connecting...")
			id, err := h.client.CreateSession(ctx)
			if err != nil {
				log.Println(err)
				return
			}
			h.sessionID = id
			fmt.Printf("initialized to session id %d\n", h.sessionID)
		} else {
			h.sessionID = id
			fmt.Printf("try continue on session id %d\n", h.sessionID)
		}
		h.initialized = true
		return
	}

	words, err := h.client.Chat(ctx, h.sessionID, line)
	if err != nil {
		log.Println(err)
		return
	}
	for word := range words {
		fmt.Print(word)
	}
	fmt.Println()
}

func (h *ChatLineHandler) list(ctx context.Context) {
	sessions, err := h.client.ListSessions(ctx)
	if err != nil {
		log.Println(err)
		return
	}
	for _, s := range sessions {
		state := "archived"
		if s.Live {
			state = "live"
		}
		fmt.Printf("%d\t%s\t%s\n", s.ID, state, s.Name)
	}
}
