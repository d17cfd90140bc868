package ram

import "github.com/stretchr/testify/mock"

type PowerControllerMock struct {
	mock.Mock
}

func (p *PowerControllerMock) SetRetention(block, mask uint32, enable bool) error {
	args := p.Called(block, mask, enable)
	return args.Error(0)
}
