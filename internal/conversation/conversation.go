package conversation

// Index returns the position of the message with id, or -1.
func (c *Conversation) Index(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversation) Has(id string) bool {
	return c.Index(id) >= 0
}

func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// Remove drops every message with id and reports whether any was found.
func (c *Conversation) Remove(id string) bool {
	kept := make([]Message, 0, len(c.Messages))
	found := false
	for _, m := range c.Messages {
		if m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	c.Messages = kept
	return found
}

func (c *Conversation) UserTurns() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// History returns a copy of the messages, skipping the ids in exclude.
func (c *Conversation) History(exclude ...string) []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		skip := false
		for _, id := range exclude {
			if m.ID == id {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, m)
		}
	}
	return out
}

func (c Conversation) Clone() Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}

// List is ordered newest first.
type List []Conversation

func (l List) Find(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

func (l List) Get(id string) *Conversation {
	if i := l.Find(id); i >= 0 {
		return &l[i]
	}
	return nil
}

func (l List) Prepend(c Conversation) List {
	return append(List{c}, l...)
}

func (l List) Delete(id string) (List, bool) {
	i := l.Find(id)
	if i < 0 {
		return l, false
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), true
}

// MostRecent returns the id of the newest conversation, or "" when empty.
func (l List) MostRecent() string {
	if len(l) == 0 {
		return ""
	}
	return l[0].ID
}

func (l List) Clone() List {
	out := make(List, len(l))
	for i := range l {
		out[i] = l[i].Clone()
	}
	return out
}
