package bot

import "strings"

// Command is a tokenized chat message. Name is the lowercased first
// token; Args are the remaining whitespace-separated tokens.
type Command struct {
	Name string
	Args []string
	Raw  string
}

// Parse tokenizes a message body. Only the command word is lowercased;
// arguments keep their original casing.
func Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Command{Raw: trimmed}
	}
	return Command{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
		Raw:  trimmed,
	}
}

// ArgText joins the arguments back into a single string, for commands
// that take free text like a display name.
func (c Command) ArgText() string {
	return strings.Join(c.Args, " ")
}

// IsVerificationCode reports whether the raw message is exactly six
// digits, the shape of an ownership challenge answer.
func (c Command) IsVerificationCode() bool {
	if len(c.Raw) != 6 || len(c.Args) != 0 {
		return false
	}
	for _, r := range c.Raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeTarget strips every non-digit rune from a phone argument so
// "+62 812-3456" and "628123456" block the same user.
func NormalizeTarget(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}
