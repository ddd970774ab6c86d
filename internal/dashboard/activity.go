package dashboard

// ActivityItem is one progress bar. Label is a message ID.
type ActivityItem struct {
	Label string
	Value int
}

// ActivitySummary is the static usage overview.
type ActivitySummary struct {
	Items          []ActivityItem
	Documents      int
	TasksDone      int
	HoursThisMonth int
}

// Activity builds the summary. Only the document count is live.
func Activity(docCount int) ActivitySummary {
	return ActivitySummary{
		Items: []ActivityItem{
			{Label: "activity_profile", Value: 85},
			{Label: "activity_tasks", Value: 72},
			{Label: "activity_storage", Value: 45},
		},
		Documents:      docCount,
		TasksDone:      247,
		HoursThisMonth: 127,
	}
}
