package pipeline

import (
	"log"
	"time"
)

// LogObserver writes human-readable progress lines to logger.
func LogObserver(logger *log.Logger) Observer {
	return ObserverFunc(func(e Event) {
		switch {
		case e.Stage == StageDone:
			if e.Outcome == OutcomeOK {
				logger.Printf("Run %s finished in %s", e.RunID, e.Elapsed.Round(time.Millisecond))
			}
		case e.Outcome == OutcomeStarted:
			switch e.Stage {
			case StageResearch:
				logger.Printf("[1] Researching topic %q...", e.Topic)
			case StageGenerate:
				logger.Printf("[2] Generating MCQs...")
			case StageSolve:
				logger.Printf("[3] MCQ %d of %d: solving...", e.Index+1, MCQCount)
			case StageValidate:
				logger.Printf("[3] MCQ %d of %d: validating...", e.Index+1, MCQCount)
			}
		case e.Outcome == OutcomePlaceholder:
			logger.Printf("[warn] MCQ %d of %d: %s (%s)", e.Index+1, MCQCount, e.Detail, e.Stage)
		case e.Outcome == OutcomeFailed:
			logger.Printf("[error] %s: %s", e.Stage, e.Detail)
		case e.Stage == StagePersist:
			logger.Printf("[4] Saved run %s", e.RunID)
		}
	})
}
