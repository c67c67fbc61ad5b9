package kitchen

import "floor-service-backend/internal/model"

// Queues is the kitchen display board: one column per preparation bucket.
type Queues struct {
	Takeaway  []model.KitchenTicket `json:"takeaway"`
	New       []model.KitchenTicket `json:"new"`
	Preparing []model.KitchenTicket `json:"preparing"`
	Ready     []model.KitchenTicket `json:"ready"`
}

// Classify partitions tickets into display columns. It is a pure function
// of line state, recomputed on every read and never stored.
//
// A ticket is active while any line is short of Ready. Active takeaway
// tickets get their own column. Active dine-in tickets sit in New only
// while every line is still New; the moment a single line starts cooking
// the whole ticket shows as Preparing, so it never looks untouched. Ready
// holds tickets of any type whose lines are all Ready.
func Classify(tickets []model.KitchenTicket) Queues {
	var q Queues
	for _, t := range tickets {
		if len(t.Lines) == 0 {
			// Empty tickets are discarded on cancellation; never display one.
			continue
		}
		switch {
		case allReady(t):
			q.Ready = append(q.Ready, t)
		case t.OrderType == model.OrderTakeaway:
			q.Takeaway = append(q.Takeaway, t)
		case allNew(t):
			q.New = append(q.New, t)
		default:
			q.Preparing = append(q.Preparing, t)
		}
	}
	return q
}

func allReady(t model.KitchenTicket) bool {
	for _, l := range t.Lines {
		if l.Status != model.TicketLineReady {
			return false
		}
	}
	return true
}

func allNew(t model.KitchenTicket) bool {
	for _, l := range t.Lines {
		if l.Status != model.TicketLineNew {
			return false
		}
	}
	return true
}
