package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	SessionCleanupQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	SessionCleanupQueue: "session_cleanup_queue",
}
