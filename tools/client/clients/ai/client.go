package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyisen/wf"

	"gptchat/clients/openai"
	"gptchat/service/chat"
)

type V1Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(endpoint string) *V1Client {
	return &V1Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   http.DefaultClient,
	}
}

func VerifyStatusReadBodyOnFail(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unexpected http status code %d no body %v", resp.StatusCode, err)
	}
	return fmt.Errorf("unexpected http status code %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

type Session struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Live bool   `json:"live"`
}

func (c *V1Client) ListSessions(ctx context.Context) ([]Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/sessions", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.doRequestAndHandleResponse(req)
	if err != nil {
		return nil, err
	}
	var ret []Session
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *V1Client) doRequestAndHandleResponse(req *http.Request) (responsePayload []byte, err error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(c io.Closer) {
		err = errors.Join(err, c.Close())
	}(resp.Body)

	if err := VerifyStatusReadBodyOnFail(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *V1Client) CreateSession(ctx context.Context) (id int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/sessions", nil)
	if err != nil {
		return 0, err
	}
	data, err := c.doRequestAndHandleResponse(req)
	if err != nil {
		return 0, err
	}
	num, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func newChatRequest(ctx context.Context, url string, content string) (*http.Request, error) {
	data, err := json.Marshal(&chat.Request{Content: content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", wf.JSONContentType)
	req.Header.Set("Accept", "text/event-stream")
	return req, nil
}

// Chat asks content in sessionID, words are sent as they arrive and the channel closed at the end.
func (c *V1Client) Chat(ctx context.Context, sessionID int, content string) (words <-chan string, err error) {
	url := fmt.Sprintf("%s/v1/sessions/%d/chat?stream=true", c.endpoint, sessionID)
	req, err := newChatRequest(ctx, url, content)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := VerifyStatusReadBodyOnFail(resp); err != nil {
		openai.CloseAndWarnIfFail(resp.Body)
		return nil, err
	}

	ch := make(chan string)
	// Pass owner of body to goroutine, DO NOT close it here. Don't ask me how I know it.
	go transform(resp.Body, ch)
	return ch, nil
}
