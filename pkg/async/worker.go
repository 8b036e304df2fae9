package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"techmart/pkg/logger"
)

// Task 表示一个异步任务
type Task struct {
	ID       string
	Handler  func(ctx context.Context) error
	Timeout  time.Duration
	RetryMax int
}

// Worker 异步任务处理器，用于审计日志落库等旁路工作
type Worker struct {
	taskQueue chan Task
	logger    *logger.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
	}
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止工作器并等待队列排空
func (w *Worker) Stop() {
	w.closeOnce.Do(func() {
		close(w.taskQueue)
	})
	w.wg.Wait()
}

// Submit 将任务加入队列；队列满时丢弃并记录日志，不阻塞调用方
func (w *Worker) Submit(task Task) {
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d", time.Now().UnixNano())
	}
	if task.Timeout <= 0 {
		task.Timeout = 10 * time.Second
	}
	select {
	case w.taskQueue <- task:
	default:
		w.logger.Warn("异步任务队列已满，任务被丢弃", "task_id", task.ID)
	}
}

func (w *Worker) processTask() {
	defer w.wg.Done()
	for task := range w.taskQueue {
		w.runTask(task)
	}
}

func (w *Worker) runTask(task Task) {
	attempts := task.RetryMax + 1
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), task.Timeout)
		err := task.Handler(ctx)
		cancel()
		if err == nil {
			return
		}
		w.logger.Error("异步任务执行失败", "task_id", task.ID, "attempt", i+1, "error", err)
	}
}
