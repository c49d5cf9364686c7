package gamepresenter

import (
	"strings"

	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

// Presenter delivers formatted text and board images without coupling to the
// client loop.
type Presenter struct {
	formatter   *Formatter
	sendMessage func(message string) error
	sendImage   func(png []byte) error
}

func NewPresenter(formatter *Formatter, sendMessage func(message string) error, sendImage func(png []byte) error) *Presenter {
	return &Presenter{
		formatter:   formatter,
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

// Board sends message, then the text board for state, then image when one
// was rendered.
func (p *Presenter) Board(message string, state *gamedto.SessionState, image []byte) error {
	if p == nil {
		return nil
	}

	if text := strings.TrimSpace(message); text != "" && p.sendMessage != nil {
		if err := p.sendMessage(text); err != nil {
			return err
		}
	}

	if state != nil && p.sendMessage != nil {
		if err := p.sendMessage(p.formatter.Status(state)); err != nil {
			return err
		}
	}

	if len(image) > 0 && p.sendImage != nil {
		if err := p.sendImage(image); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presenter) Text(message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(message)
}
