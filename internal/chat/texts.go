package chat

// User-facing strings. The assistant serves a Vietnamese-speaking audience,
// so the built-in texts are Vietnamese.
const (
	// GreetingText opens every fresh transcript.
	GreetingText = "Xin chào! Tôi có thể giúp bạn tìm kiếm chuyến bay, khách sạn hoặc lên kế hoạch du lịch. Bạn muốn đi đâu?"

	// SendFailureText replaces the assistant placeholder when a turn fails.
	SendFailureText = "Không thể gửi tin nhắn. Vui lòng thử lại."
)

// DefaultLanguage tags outbound voice requests.
const DefaultLanguage = "vi"

// DefaultSuggestions seed the greeting message before the backend has
// offered any follow-ups of its own.
func DefaultSuggestions() []string {
	return []string{
		"Tìm chuyến bay từ Hà Nội đến Đà Nẵng",
		"Khách sạn gần biển ở Nha Trang",
		"Lên lịch trình 3 ngày ở Huế",
		"Vé máy bay giá rẻ đi Phú Quốc",
	}
}
