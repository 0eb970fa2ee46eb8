package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// Engine transcript dump: raw prompts and responses exchanged with the
// reasoning engine, kept out of the main log so it stays readable.

var (
	engineMu  sync.Mutex
	engineLog *log.Logger
)

func SetEngineWriter(w io.Writer) {
	engineMu.Lock()
	defer engineMu.Unlock()
	if w == nil {
		engineLog = nil
		return
	}
	engineLog = log.New(w, "", log.LstdFlags)
}

type engineSection struct {
	Title string
	Body  string
}

func logEngine(kind, agent, session string, sections []engineSection) {
	engineMu.Lock()
	l := engineLog
	engineMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ENGINE]")
	if kind != "" {
		b.WriteString("[" + kind + "]")
	}
	if agent != "" {
		b.WriteString("[" + agent + "]")
	}
	if session != "" {
		b.WriteString("[" + session + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- " + t + " ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func LogEngineRequest(agent, session, systemPrompt, userPrompt string) {
	logEngine("request", agent, session, []engineSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	})
}

func LogEngineResponse(agent, session, raw string) {
	logEngine("response", agent, session, []engineSection{{Title: "RAW", Body: raw}})
}
