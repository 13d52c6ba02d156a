package mqtt

import (
	"context"
	"strings"

	"coolerctl/internal/command"
	"coolerctl/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// CommandListener subscribes to the command topic and runs incoming AT
// command lines through the interpreter. Reply lines go back on the reply
// topic, one message per command, newline-joined.
type CommandListener struct {
	client       *Client
	interp       *command.Interpreter
	commandTopic string // e.g. "cooler/{device}/command"
	replyTopic   string // e.g. "cooler/{device}/reply"
	device       string
	log          *logger.Logger
}

func NewCommandListener(client *Client, interp *command.Interpreter, commandTopic, replyTopic, device string, log *logger.Logger) *CommandListener {
	return &CommandListener{
		client:       client,
		interp:       interp,
		commandTopic: commandTopic,
		replyTopic:   replyTopic,
		device:       device,
		log:          log,
	}
}

// Subscribe registers the command handler. Handlers run on paho's router
// goroutine; the control service serializes them internally.
func (l *CommandListener) Subscribe(ctx context.Context) error {
	topic := formatTopic(l.commandTopic, l.device)
	token := l.client.client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		l.handle(ctx, string(msg.Payload()))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	l.log.Infow("subscribed to command topic", "topic", topic)
	return nil
}

func (l *CommandListener) handle(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	l.log.Infow("command received", "line", line)

	reply := strings.Join(l.interp.Execute(ctx, line), "\n")
	topic := formatTopic(l.replyTopic, l.device)
	token := l.client.client.Publish(topic, 1, false, []byte(reply))
	if token.Wait() && token.Error() != nil {
		l.log.Warnw("command reply failed", "topic", topic, "err", token.Error())
	}
}
