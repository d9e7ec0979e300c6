package display

import (
	"fmt"
	"io"
)

func Error(w io.Writer, err error, context string) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("❌ Error in %s:", context)))
	fmt.Fprintf(w, "   %v\n", err)
}

func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  Warning: %s\n", message)
}

func Success(w io.Writer, message string) {
	fmt.Fprintln(w, checkedStyle.Render("✅ "+message))
}

func Info(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}
