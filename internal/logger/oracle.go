package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// Oracle exchanges are dumped to a dedicated writer so a failed decision can
// be replayed offline with the exact prompt and raw response that produced it.

var (
	oracleMu  sync.Mutex
	oracleLog *log.Logger
)

func SetOracleWriter(w io.Writer) {
	oracleMu.Lock()
	defer oracleMu.Unlock()
	if w == nil {
		oracleLog = nil
		return
	}
	oracleLog = log.New(w, "", log.LstdFlags)
}

func dumpOracle(kind string, sections map[string]string, order []string) {
	oracleMu.Lock()
	l := oracleLog
	oracleMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ORACLE][")
	b.WriteString(kind)
	b.WriteString("]\n")
	for _, title := range order {
		body := sections[title]
		b.WriteString("--- ")
		b.WriteString(title)
		b.WriteString(" ---\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func LogOracleRequest(systemPrompt, userPrompt string) {
	dumpOracle("request",
		map[string]string{"SYSTEM": systemPrompt, "USER": userPrompt},
		[]string{"SYSTEM", "USER"})
}

func LogOracleResponse(raw string) {
	dumpOracle("response", map[string]string{"RAW": raw}, []string{"RAW"})
}
