package services

import (
	"github.com/stretchr/testify/mock"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/ports"
)

// MockWriter является моком для ports.Writer.
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Start(settings ports.Settings, stats ports.Stats) error {
	return m.Called(settings, stats).Error(0)
}

func (m *MockWriter) WritePersonal(data domain.PersonalInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteUserpicsStart(data domain.UserpicsInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteUserpicsSlice(data domain.UserpicsSlice) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteUserpicsEnd() error {
	return m.Called().Error(0)
}

func (m *MockWriter) WriteContactsList(data domain.ContactsList) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteSessionsList(data domain.SessionsList) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteDialogsStart(data domain.DialogsInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteDialogStart(data domain.DialogInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteDialogSlice(data domain.MessagesSlice) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteDialogEnd() error {
	return m.Called().Error(0)
}

func (m *MockWriter) WriteDialogsEnd() error {
	return m.Called().Error(0)
}

func (m *MockWriter) WriteLeftChannelsStart(data domain.DialogsInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteLeftChannelStart(data domain.DialogInfo) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteLeftChannelSlice(data domain.MessagesSlice) error {
	return m.Called(data).Error(0)
}

func (m *MockWriter) WriteLeftChannelEnd() error {
	return m.Called().Error(0)
}

func (m *MockWriter) WriteLeftChannelsEnd() error {
	return m.Called().Error(0)
}

func (m *MockWriter) Finish() error {
	return m.Called().Error(0)
}

func (m *MockWriter) MainFilePath() string {
	return m.Called().String(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

var writerMethods = map[string]int{
	"Start":                  2,
	"WritePersonal":          1,
	"WriteUserpicsStart":     1,
	"WriteUserpicsSlice":     1,
	"WriteUserpicsEnd":       0,
	"WriteContactsList":      1,
	"WriteSessionsList":      1,
	"WriteDialogsStart":      1,
	"WriteDialogStart":       1,
	"WriteDialogSlice":       1,
	"WriteDialogEnd":         0,
	"WriteDialogsEnd":        0,
	"WriteLeftChannelsStart": 1,
	"WriteLeftChannelStart":  1,
	"WriteLeftChannelSlice":  1,
	"WriteLeftChannelEnd":    0,
	"WriteLeftChannelsEnd":   0,
	"Finish":                 0,
	"Close":                  0,
}

// newMockWriter создает мок, который принимает любые вызовы.
// failures задает ошибки для отдельных методов.
func newMockWriter(failures map[string]error) *MockWriter {
	m := &MockWriter{}
	for method, argc := range writerMethods {
		args := make([]interface{}, argc)
		for i := range args {
			args[i] = mock.Anything
		}
		m.On(method, args...).Return(failures[method])
	}
	m.On("MainFilePath").Return("/tmp/export/overview.txt")
	return m
}

// calledMethods возвращает имена вызванных методов в порядке вызова.
func calledMethods(m *MockWriter) []string {
	names := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		names = append(names, call.Method)
	}
	return names
}
