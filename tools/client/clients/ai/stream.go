package ai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gptchat/service/chat"
)

func transform(body io.ReadCloser, output chan<- string) {
	defer func() {
		_ = body.Close()
		close(output)
	}()

	// The implementation here follows the guideline, in some way.
	// ref https://html.spec.whatwg.org/multipage/server-sent-events.html#event-stream-interpretation
	// Differences (no difference as my server don't use them)
	// - Field name "id" and "retry" not supported.
	scanner := bufio.NewScanner(body)
	eventType := ""
	var data string
	var hasData, pending bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			continue
		}
		if value, ok := cutField(line, "event"); ok {
			eventType = value
			pending = true
			continue
		}
		if value, ok := cutField(line, "data"); ok {
			// Not strings.Builder{} as there is typically none or little append.
			// Same to add LF on every line and remove the last after join.
			if hasData {
				data += "\n"
			}
			data += value
			hasData = true
			pending = true
			continue
		}
		if line == "" {
			if pending {
				output <- message(eventType, data)
			}
			// DO DOT forget to clean buffer in the end of dispatch, don't ask me how I found it vital.
			eventType = ""
			data = ""
			hasData = false
			pending = false
			continue
		}
		output <- fmt.Sprintf("\nunexpected line: %q\n", line)
	}
	if err := scanner.Err(); err != nil {
		output <- fmt.Sprintf("\n err: %v", err)
	}
}

// cutField returns the value of line if it is the field name, without the single leading space.
func cutField(line string, name string) (value string, ok bool) {
	value, ok = strings.CutPrefix(line, name+":")
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(value, " "), true
}

func message(eventType string, data string) (word string) {
	switch eventType {
	case "head":
		var head chat.Head
		if err := json.Unmarshal([]byte(data), &head); err != nil {
			return fmt.Sprintf("head = %s\n", data)
		}
		return fmt.Sprintf("[%s %s]\n", head.Model, head.ID)
	case "":
		return data
	case "finish":
		return fmt.Sprintf("\nFinishReason = %s\n", data)
	case "error":
		return fmt.Sprintf("\nserver error: %s\n", data)
	}
	return fmt.Sprintf("\nunsupported event %s: %s\n", eventType, data)
}
