package mockapi

import "github.com/teamkonekt/konekt/internal/model"

// Demo credentials seeded by NewDemo.
const (
	DemoManagerEmail  = "manager@konekt.test"
	DemoEmployeeEmail = "ada@konekt.test"
	DemoPassword      = "konekt"
)

// NewDemo returns a server with a small company: one manager, three
// employees and enough tasks to span two pages.
func NewDemo(opts ...Option) *Server {
	s := New("Konekt Demo", opts...)
	s.AddManager(DemoManagerEmail, DemoPassword, "Maria", "Lopez")

	ada := s.AddEmployee(DemoEmployeeEmail, DemoPassword, "Ada", "Okafor")
	ben := s.AddEmployee("ben@konekt.test", DemoPassword, "Ben", "Tran")
	cleo := s.AddEmployee("cleo@konekt.test", DemoPassword, "Cleo", "Ruiz")

	today := s.now().UTC()
	titles := []string{
		"Restock shelves", "Count register", "Clean storage room",
		"Update price tags", "Check deliveries", "Water plants",
		"Call supplier", "Inventory audit", "Fix signage",
		"Train new hire", "Sort returns", "Prepare weekly report",
	}
	crew := []int64{ada.ID, ben.ID, cleo.ID}
	for i, title := range titles {
		s.AddTask(model.TaskInput{
			Title:      title,
			AssignedTo: []int64{crew[i%len(crew)]},
			DueDate:    today.AddDate(0, 0, i-3).Format("2006-01-02"),
			Priority:   []string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}[i%3],
		})
	}

	s.AddReport(ben.ID, "Freezer in aisle 4 is leaking")
	s.AddReport(cleo.ID, "Back door lock is jammed")
	s.AddAnnouncement("Holiday hours", "We close at 6pm on Friday.")
	s.AddAnnouncement("Team lunch", "Pizza in the break room at noon.")
	s.AddSuggestion(ada.ID, "Could we get a second label printer?")
	return s
}
