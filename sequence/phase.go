package sequence

import "fmt"

// Phase is the executor state machine position
type Phase uint8

const (
	PhaseIdle             Phase = iota // Waiting for the next evaluation
	PhaseEvaluatingSlot                // Reading the slot under the cursor
	PhaseTriggerCheck                  // Trigger modifiers and target requirement
	PhaseSpendingEnergy                // Affordability check and spend
	PhasePreExecution                  // Modifier pre hooks
	PhaseExecuting                     // Active Execute
	PhaseDelayedExecuting              // Spent, waiting on the delay timer
	PhasePostExecution                 // Modifier post hooks and success event
	PhaseAdvancing                     // Cursor move and wrap
	PhaseRecharging                    // Counting down after a completed cycle
)

var phaseNames = [...]string{
	"idle", "evaluating_slot", "trigger_check", "spending_energy", "pre_execution",
	"executing", "delayed_executing", "post_execution", "advancing", "recharging",
}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", p)
	}
	return phaseNames[p]
}

// Outcome is the result of one evaluation
type Outcome uint8

const (
	OutcomeInactive   Outcome = iota // Destroyed, paused or nothing to run
	OutcomeRecharging                // Recharge counter decremented
	OutcomeWaiting                   // A delayed execution is still pending
	OutcomeSkipped                   // Empty slot advanced without cost
	OutcomeFailed                    // Active did not resolve, slot advanced
	OutcomeBlocked                   // Unaffordable or unmet trigger, slot retried next time
	OutcomeDelayed                   // Spent and scheduled
	OutcomeExecuted                  // Executed and advanced
)

var outcomeNames = [...]string{
	"inactive", "recharging", "waiting", "skipped", "failed", "blocked", "delayed", "executed",
}

func (o Outcome) String() string {
	if int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", o)
	}
	return outcomeNames[o]
}
