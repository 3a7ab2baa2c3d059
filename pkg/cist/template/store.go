package template

import (
	"memento-be/pkg/cist"
)

// Store is the static catalogue of canonical screening questions per
// category. Pure data; paraphrasing happens downstream.
type Store struct {
	templates map[cist.Category][]string
}

// NewStore returns a store preloaded with the canonical question set.
func NewStore() *Store {
	return &Store{
		templates: map[cist.Category][]string{
			cist.CategoryOrientationTime: {
				"오늘이 몇 년도인지 말씀해 주세요.",
				"지금이 몇 월인지 알려주세요.",
				"오늘이 며칠인지 말씀해 주세요.",
				"오늘이 무슨 요일인지 알려주세요.",
			},
			cist.CategoryOrientationPlace: {
				"지금 계신 이곳이 어디인지 말씀해 주세요.",
			},
			cist.CategoryMemoryRegistration: {
				"제가 말하는 문장을 그대로 따라해 주세요: '{sentence}'",
				"다음 단어들을 기억해 주세요: {words}. 잠시 후 다시 물어보겠습니다.",
			},
			cist.CategoryMemoryRecall: {
				"조금 전에 말씀드린 단어들을 기억나는 대로 말씀해 주세요.",
				"앞서 들려드린 문장을 다시 말씀해 주실 수 있나요?",
			},
			cist.CategoryMemoryRecognition: {
				"이 중에서 앞서 말씀드린 단어는 어느 것인가요?",
				"방금 전 들려드린 것과 같은 내용은 어느 것인가요?",
			},
			cist.CategoryAttention: {
				"제가 말하는 숫자를 거꾸로 말씀해 주세요: {numbers}",
				"다음 단어를 거꾸로 말씀해 주세요: {word}",
			},
			cist.CategoryExecutiveFunction: {
				"1분 동안 {category} 종류의 단어를 최대한 많이 말씀해 주세요.",
				"{category}에 속하는 것들을 아는 대로 말씀해 주세요.",
			},
			cist.CategoryLanguageNaming: {
				"이 사진에 보이는 {object}의 이름이 무엇인지 말씀해 주세요.",
				"사진 속 {object}를 뭐라고 부르는지 알려주세요.",
			},
		},
	}
}

// Questions returns the canonical questions for a category. The returned
// slice is a copy; mutating it does not affect the store.
func (s *Store) Questions(category cist.Category) []string {
	questions := s.templates[category]
	out := make([]string, len(questions))
	copy(out, questions)
	return out
}

// Count returns the number of canonical questions for a category.
func (s *Store) Count(category cist.Category) int {
	return len(s.templates[category])
}
