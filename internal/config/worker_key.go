package config

// WorkerKeyStruct names the Redis queues consumed by the exstem backend workers.
type WorkerKeyStruct struct {
	PersistCheatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCheatsQueue: "persist_cheats_queue",
}
