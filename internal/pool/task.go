package pool

// Task is a unit of work scheduled on a Pool. It is an intrusive node: the
// pool threads tasks through its queues via the embedded link, so scheduling
// never allocates. A Task must not be scheduled again until its callback has
// run; the slot is owned by exactly one queue at a time.
//
// Callbacks typically recover their job state by embedding Task in a larger
// struct and capturing it, or via a closure.
type Task struct {
	next     *Task
	Callback func(*Worker, *Task)
}

// Batch is an ordered chain of one or more tasks submitted as a single unit.
// The zero value is an empty batch. A batch is immutable once scheduled.
type Batch struct {
	head  *Task
	tail  *Task
	count uint
}

// NewBatch builds a batch from the given tasks, preserving order.
func NewBatch(tasks ...*Task) Batch {
	var b Batch
	for _, t := range tasks {
		b.Push(t)
	}
	return b
}

// Len returns the number of tasks in the batch.
func (b *Batch) Len() uint { return b.count }

// Empty reports whether the batch holds no tasks.
func (b *Batch) Empty() bool { return b.head == nil }

// Push appends a single task to the batch.
func (b *Batch) Push(t *Task) {
	t.next = nil
	if b.head == nil {
		b.head = t
	} else {
		b.tail.next = t
	}
	b.tail = t
	b.count++
}

// Extend appends every task of other to the batch. The other batch must not
// be used afterwards.
func (b *Batch) Extend(other Batch) {
	if other.head == nil {
		return
	}
	if b.head == nil {
		*b = other
		return
	}
	b.tail.next = other.head
	b.tail = other.tail
	b.count += other.count
}

// pop detaches and returns the first task, or nil when the batch is empty.
func (b *Batch) pop() *Task {
	t := b.head
	if t == nil {
		return nil
	}
	b.head = t.next
	if b.head == nil {
		b.tail = nil
	}
	b.count--
	t.next = nil
	return t
}
