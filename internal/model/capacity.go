package model

// CapacityEvent событие, меняющее счётчик свободных мест сессии
type CapacityEvent string

const (
	CapacityEventBook   CapacityEvent = "book"
	CapacityEventCancel CapacityEvent = "cancel"
)

// ApplyCapacityEvent вычисляет новое состояние счётчика и статуса сессии.
// Чистая функция без побочных эффектов: единственное место, где определены
// переходы available_slots/status для записи и отмены.
//
// Book требует открытую сессию со свободным местом; когда последнее место
// занято, статус становится closed. Cancel возвращает место (не больше
// total) и всегда открывает сессию заново.
func ApplyCapacityEvent(total, available int, status SessionStatus, event CapacityEvent) (int, SessionStatus, error) {
	switch event {
	case CapacityEventBook:
		// Исчерпание проверяем раньше статуса: проигравший гонку за
		// последнее место должен увидеть именно ErrSessionFull
		if available <= 0 {
			return available, status, ErrSessionFull
		}
		if status != SessionStatusOpen {
			return available, status, ErrSessionClosed
		}
		next := available - 1
		if next == 0 {
			return next, SessionStatusClosed, nil
		}
		return next, status, nil

	case CapacityEventCancel:
		next := available + 1
		if next > total {
			// каждый pending соответствует одному декременту, сюда попадать не должны
			next = total
		}
		return next, SessionStatusOpen, nil

	default:
		return available, status, ErrValidation
	}
}
