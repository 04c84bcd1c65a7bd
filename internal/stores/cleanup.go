package stores

import "context"

// CleanupAllExpired sweeps expired rows of both token kinds and returns the
// total number removed. It stops at the first failing table.
func CleanupAllExpired(ctx context.Context, verification *EmailVerificationStore, reset *PasswordResetStore) (int64, error) {
	var total int64

	n, err := verification.CleanupExpired(ctx)
	if err != nil {
		return total, err
	}
	total += n

	n, err = reset.CleanupExpired(ctx)
	if err != nil {
		return total, err
	}
	return total + n, nil
}
