//go:build !darwin

package platform

func rosettaTranslated() bool {
	return false
}
