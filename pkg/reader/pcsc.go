package reader

import (
	"fmt"

	"github.com/ebfe/scard"
)

// Card is a connected card.
type Card interface {
	Transmit(cmd []byte) ([]byte, error)
	Close() error
}

// Connector opens a connection to the card in a reader.
type Connector interface {
	Connect(reader string) (Card, error)
}

// PCSC adapts a *scard.Context to Context and Connector.
type PCSC struct {
	*scard.Context
}

// Establish opens a PC/SC context. Call Release when done.
func Establish() (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	return &PCSC{Context: ctx}, nil
}

// Connect opens a shared connection using T=0 or T=1.
func (p *PCSC) Connect(reader string) (Card, error) {
	// ProtocolAny is rejected by some drivers ("Parameter Incorrect").
	card, err := p.Context.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", reader, err)
	}
	return &pcscCard{card}, nil
}

type pcscCard struct {
	*scard.Card
}

func (c *pcscCard) Close() error {
	return c.Disconnect(scard.LeaveCard)
}
