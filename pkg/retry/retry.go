package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries actions with a fixed set of strategies.
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier []Strategy

func NewRetrier(strategies ...Strategy) Retrier {
	return retrier(strategies)
}

func (r retrier) Retry(action Action) (uint, error) {
	return Retry(action, r...)
}

// Retry runs action until it succeeds or any strategy declines another
// attempt, returning the number of attempts made and the last error.
// Strategies are consulted in order, so ones that sleep belong last. Without
// strategies Retry loops until action succeeds.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for attempts := uint(1); ; attempts++ {
		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, shouldRetry := range strategies {
			if !shouldRetry(attempts, err) {
				return attempts, err
			}
		}
	}
}
