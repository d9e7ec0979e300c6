package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/CortexReview/consts"
)

type deskAction string

const (
	actionUpload    deskAction = "📤 Upload a trade screenshot"
	actionReplace   deskAction = "🔁 Replace screenshot"
	actionEvaluate  deskAction = "⚡ RUN EVALUATION"
	actionReport    deskAction = "📝 Export markdown report"
	actionUploadNew deskAction = "📤 Upload new screenshot"
	actionReset     deskAction = "🧹 Reset desk"
	actionPlaybook  deskAction = "📖 Show playbook"
	actionExit      deskAction = "🚪 Exit"
)

// actionsFor lists what the desk offers in each state.
func actionsFor(state consts.DeskState) []deskAction {
	switch state {
	case consts.State_ImageLoaded:
		return []deskAction{actionEvaluate, actionReplace, actionReset, actionPlaybook, actionExit}
	case consts.State_AnalysisComplete:
		return []deskAction{actionReport, actionUploadNew, actionReset, actionPlaybook, actionExit}
	default:
		return []deskAction{actionUpload, actionPlaybook, actionExit}
	}
}

// PromptForAction asks what to do next given the desk state.
func PromptForAction(state consts.DeskState) (deskAction, error) {
	actions := actionsFor(state)
	options := make([]string, len(actions))
	for i, a := range actions {
		options[i] = string(a)
	}

	var choice string
	prompt := &survey.Select{
		Message: fmt.Sprintf("[%s] Select an action:", state.Label()),
		Options: options,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	return deskAction(choice), nil
}

// PromptForImageSource asks for a screenshot path or an http(s) URL.
func PromptForImageSource() (string, error) {
	var source string
	prompt := &survey.Input{
		Message: "Screenshot file path or URL:",
		Help:    "PNG or JPG of the executed trade, e.g. ~/charts/eurusd-5m.png or https://example.com/shot.png",
		Suggest: suggestFiles,
	}

	err := survey.AskOne(prompt, &source, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return fmt.Errorf("source cannot be empty")
		}
		if strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://") {
			return nil
		}
		info, err := os.Stat(expandHome(str))
		if err != nil {
			return fmt.Errorf("file not found: %s", str)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", str)
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(source), nil
}

// PromptForReportPath asks where to write the markdown report.
func PromptForReportPath(defaultPath string) (string, error) {
	var path string
	prompt := &survey.Input{
		Message: "Report file:",
		Default: defaultPath,
		Suggest: suggestFiles,
	}
	if err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return expandHome(strings.TrimSpace(path)), nil
}

// PromptAcknowledge blocks until the user dismisses a notice.
func PromptAcknowledge() error {
	var ack bool
	prompt := &survey.Confirm{
		Message: "Acknowledge and return to the desk?",
		Default: true,
	}
	return survey.AskOne(prompt, &ack)
}

func suggestFiles(toComplete string) []string {
	matches, _ := filepath.Glob(expandHome(toComplete) + "*")
	return matches
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
