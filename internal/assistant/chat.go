package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/leaklab/internal/clock"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const WelcomeMessage = "Welcome to the lab. Make sure K2 is open, then close K1 to charge the condenser."

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Chat holds the conversation and at most one question awaiting a reply.
type Chat struct {
	gw  Gateway
	clk clock.Clock

	mu      sync.Mutex
	history []Message
	pending *Pending
}

func NewChat(gw Gateway, clk clock.Clock) *Chat {
	if gw == nil {
		gw = Unavailable{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	c := &Chat{gw: gw, clk: clk}
	c.history = []Message{{Role: RoleAssistant, Text: WelcomeMessage, At: clk.Now()}}
	return c
}

// Submit appends the question to the history and claims the pending slot.
// A second question while one is in flight is rejected with ErrBusy, not
// queued.
func (c *Chat) Submit(question string) (*Pending, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrBusy
	}

	c.history = append(c.history, Message{Role: RoleUser, Text: question, At: c.clk.Now()})
	p := &Pending{chat: c, question: question}
	c.pending = p
	return p, nil
}

// Ask submits and waits for the reply in one go.
func (c *Chat) Ask(ctx context.Context, question, snapshot string) (string, error) {
	p, err := c.Submit(question)
	if err != nil {
		return "", err
	}
	return p.Await(ctx, snapshot), nil
}

// Note appends an assistant-side message without asking the model.
func (c *Chat) Note(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, Message{Role: RoleAssistant, Text: text, At: c.clk.Now()})
}

func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Chat) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Chat) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

func (c *Chat) finish(p *Pending, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, Message{Role: RoleAssistant, Text: reply, At: c.clk.Now()})
	if c.pending == p {
		c.pending = nil
	}
}

// Pending is a submitted question. Await runs the gateway call exactly once;
// later callers get the same reply.
type Pending struct {
	chat     *Chat
	question string

	once  sync.Once
	reply string
}

func (p *Pending) Question() string {
	return p.question
}

// Await asks the gateway, appends the reply to the history and frees the
// slot. The reply is appended even if nobody is looking at the chat anymore.
func (p *Pending) Await(ctx context.Context, snapshot string) string {
	p.once.Do(func() {
		p.reply = p.chat.gw.Ask(ctx, p.question, snapshot)
		p.chat.finish(p, p.reply)
	})
	return p.reply
}
