package cache

import "testing"

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "quiz",
			objectType:  "session",
			identifier:  "123",
			paramsKey:   nil,
			expectedKey: "quizbot:quiz:session:123",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "quiz",
			objectType:  "session",
			identifier:  "123",
			paramsKey:   []string{},
			expectedKey: "quizbot:quiz:session:123",
		},
		{
			name:        "with one paramsKey",
			serviceName: "ask",
			objectType:  "history",
			identifier:  "abc",
			paramsKey:   []string{"param1"},
			expectedKey: "quizbot:ask:history:abc:param1",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "embedding",
			objectType:  "ollama",
			identifier:  "xyz",
			paramsKey:   []string{"param1", "param2", "param3"},
			expectedKey: "quizbot:embedding:ollama:xyz:param1_param2_param3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualKey := GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...)
			if actualKey != tt.expectedKey {
				t.Errorf("GenerateCacheKey() = %v, want %v", actualKey, tt.expectedKey)
			}
		})
	}
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey("01ABC"); got != "quizbot:quiz:session:01ABC" {
		t.Errorf("SessionKey() = %v", got)
	}
}

func TestChatHistoryKey(t *testing.T) {
	if got := ChatHistoryKey("notes"); got != "quizbot:ask:history:notes" {
		t.Errorf("ChatHistoryKey() = %v", got)
	}
}
