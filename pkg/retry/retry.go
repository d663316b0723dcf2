// Package retry runs actions repeatedly under a composable set of strategies.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes action until it succeeds or a strategy declines another
// attempt. It returns the number of attempts made along with the last error.
//
// Strategies are evaluated in order after each failed attempt, and evaluation
// stops at the first one that declines. Strategies that sleep should therefore
// be listed last so a declined attempt does not pay for a delay.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		if !shouldRetry(strategies, attempts, err) {
			return attempts, err
		}
	}
}

// Loop executes action forever, until a strategy declines to continue after
// a failure. A successful run resets the attempt counter that strategies see.
func Loop(action Action, strategies ...Strategy) error {
	var attempts uint
	for {
		err := action()
		if err == nil {
			attempts = 0
			continue
		}

		attempts++
		if !shouldRetry(strategies, attempts, err) {
			return err
		}
	}
}

func shouldRetry(strategies []Strategy, attempts uint, err error) bool {
	for _, s := range strategies {
		if !s(attempts, err) {
			return false
		}
	}
	return true
}
