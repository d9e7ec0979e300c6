package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/display"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/internal/report"
	"github.com/dyike/CortexReview/models"
)

// runInteractiveMode drives the review desk from the terminal until the user
// exits or interrupts a prompt.
func runInteractiveMode(ctx context.Context, app *App) error {
	app.watchConfig(ctx)
	showWelcome(app.out, app.Playbook())
	if _, err := app.requireClient(); err != nil {
		display.Warning(app.out, fmt.Sprintf("analysis unavailable until configured: %v", err))
		fmt.Fprintln(app.out, "   Run 'cortexreview config validate' for details.")
		fmt.Fprintln(app.out)
	}

	for {
		state := app.desk.State()
		fmt.Fprintln(app.out, display.RenderStatus(state))

		action, err := PromptForAction(state)
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				fmt.Fprintln(app.out, "👋 Session closed.")
				return nil
			}
			return err
		}

		switch action {
		case actionExit:
			fmt.Fprintln(app.out, "👋 Thank you for using CortexReview!")
			return nil
		case actionUpload, actionReplace, actionUploadNew:
			err = uploadImage(ctx, app)
		case actionEvaluate:
			err = runEvaluation(ctx, app)
		case actionReport:
			err = exportReport(app)
		case actionReset:
			app.desk.Reset()
			display.Info(app.out, "Desk cleared.")
		case actionPlaybook:
			fmt.Fprintln(app.out, display.RenderPlaybook(app.Playbook()))
		}

		if errors.Is(err, terminal.InterruptErr) {
			fmt.Fprintln(app.out, "👋 Session closed.")
			return nil
		}
		fmt.Fprintln(app.out)
	}
}

func uploadImage(ctx context.Context, app *App) error {
	source, err := PromptForImageSource()
	if err != nil {
		return err
	}
	img, err := app.loader.Load(ctx, source)
	if err != nil {
		if errors.Is(err, imageload.ErrNotImage) {
			display.Warning(app.out, consts.Msg_NotImage)
		} else {
			display.Error(app.out, err, "upload")
		}
		return nil
	}
	if err := app.desk.Load(img); err != nil {
		display.Error(app.out, err, "upload")
		return nil
	}
	fmt.Fprintln(app.out, display.RenderImageCard(app.desk.Snapshot().Image))
	return nil
}

func runEvaluation(ctx context.Context, app *App) error {
	var (
		result *models.AnalysisResult
		err    error
	)
	if isTerminal(os.Stdout) {
		result, err = evaluateWithSpinner(ctx, app.desk)
	} else {
		result, err = app.desk.Evaluate(ctx)
	}

	switch {
	case err == nil:
		fmt.Fprintln(app.out, display.RenderAnalysis(result))
		return nil
	case errors.Is(err, context.Canceled):
		display.Info(app.out, "Evaluation cancelled. The screenshot is still loaded.")
		return nil
	case errors.Is(err, analysis.ErrAnalysisFailed), errors.Is(err, desk.ErrNoAnalyzer):
		fmt.Fprintln(app.out, display.RenderErrorNotice(consts.Msg_UplinkError))
		return PromptAcknowledge()
	default:
		display.Error(app.out, err, "evaluation")
		return nil
	}
}

func exportReport(app *App) error {
	snap := app.desk.Snapshot()
	if snap.Image == nil || !snap.Image.HasAnalysis() {
		display.Warning(app.out, "Nothing to export yet.")
		return nil
	}
	name := fmt.Sprintf("review-%s.md", snap.Image.Timestamp.Format("20060102-150405"))
	path, err := PromptForReportPath(filepath.Join(app.Config().ResultsDir, name))
	if err != nil {
		return err
	}
	md, err := writeReport(app, path)
	if err != nil {
		display.Error(app.out, err, "report")
		return nil
	}
	rendered, err := report.RenderTerminal(md, 78)
	if err != nil {
		logger.Log.Warnf("report preview unavailable: %v", err)
		return nil
	}
	fmt.Fprint(app.out, rendered)
	return nil
}
