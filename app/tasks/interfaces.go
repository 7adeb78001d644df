package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The main application uses it to manage the worker pool;
// the pipeline uses the scheduler as its draft generation queue.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
