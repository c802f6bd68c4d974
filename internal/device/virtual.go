package device

import (
	"context"
	"math/rand/v2"
)

const (
	VirtualProviderName = "virtual"
	virtualMinSteps     = 5000
	virtualMaxSteps     = 15000
)

// VirtualProvider fabricates a plausible daily count for demos.
type VirtualProvider struct {
	intn func(n int) int
}

func NewVirtualProvider() *VirtualProvider {
	return &VirtualProvider{intn: rand.IntN}
}

func (*VirtualProvider) Name() string     { return VirtualProviderName }
func (*VirtualProvider) NeedsToken() bool { return false }

func (v *VirtualProvider) DailySteps(_ context.Context, tok Token, _ string) (int, Token, error) {
	return v.Generate(), tok, nil
}

// Generate returns a count in [5000, 15000].
func (v *VirtualProvider) Generate() int {
	return virtualMinSteps + v.intn(virtualMaxSteps-virtualMinSteps+1)
}
