package session

type WindowOptions struct {
	MaxMessages int
	MaxChars    int
}

type WindowMeta struct {
	Total    int
	Included int
	Dropped  int
	Chars    int
}

func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		MaxMessages: 40,
		MaxChars:    24000,
	}
}

// Window keeps the most recent turns that fit the limits. The window always
// opens on a user turn so an observed result is never sent without its cause.
func Window(history []Turn, opts WindowOptions) ([]Turn, WindowMeta) {
	defaults := DefaultWindowOptions()
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = defaults.MaxMessages
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaults.MaxChars
	}
	meta := WindowMeta{Total: len(history)}
	if len(history) == 0 {
		return nil, meta
	}

	start := 0
	if len(history) > opts.MaxMessages {
		start = len(history) - opts.MaxMessages
	}
	candidate := history[start:]

	keep := 0
	chars := 0
	for i := len(candidate) - 1; i >= 0; i-- {
		addition := len(candidate[i].Text)
		if chars+addition > opts.MaxChars && keep > 0 {
			break
		}
		keep++
		chars += addition
	}
	window := candidate[len(candidate)-keep:]
	for len(window) > 0 && window[0].Role != RoleUser {
		chars -= len(window[0].Text)
		window = window[1:]
	}

	out := make([]Turn, len(window))
	copy(out, window)
	meta.Included = len(out)
	meta.Dropped = meta.Total - meta.Included
	meta.Chars = chars
	return out, meta
}
