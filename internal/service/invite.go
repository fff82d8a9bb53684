package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
)

const (
	inviteCodeLength  = 10
	inviteCodeLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// InviteManager хранит текущий одноразовый код подтверждения нового администратора.
// Код действует до первой успешной проверки или до выпуска нового.
type InviteManager struct {
	mu   sync.Mutex
	code string
}

// NewInviteManager создает менеджер с уже сгенерированным кодом
func NewInviteManager() (*InviteManager, error) {
	m := &InviteManager{}
	if _, err := m.Issue(); err != nil {
		return nil, err
	}
	return m, nil
}

// Issue генерирует новый код, прежний перестает действовать
func (m *InviteManager) Issue() (string, error) {
	code, err := generateInviteCode()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.code = code
	m.mu.Unlock()
	return code, nil
}

// Verify сравнивает код за постоянное время. При совпадении код сразу заменяется новым.
func (m *InviteManager) Verify(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.code == "" || subtle.ConstantTimeCompare([]byte(code), []byte(m.code)) != 1 {
		return false
	}
	next, err := generateInviteCode()
	if err != nil {
		// Без нового кода старый все равно нельзя оставлять
		m.code = ""
		return true
	}
	m.code = next
	return true
}

func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeLetters)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		buf[i] = inviteCodeLetters[n.Int64()]
	}
	return string(buf), nil
}
