package redis

// Smoke test for a bound redis service.
//
// The tester writes four categories of keys, recordsPerSeed of each:
//
//	key-str-<i>      value=<i>
//	key-num-<i>      <i*2>
//	key-ttl-str-<i>  value-with-ttl=<i>   expires after RecordTTL
//	key-ttl-num-<i>  <i*2>                expires after RecordTTL
//
// It then counts each category with KEYS and flushes the instance. A healthy
// instance reports recordsPerSeed for every category.
//
// Connection settings come from the service registry when VCAP_SERVICES is
// present (TLS, password from the binding). Otherwise the service name is
// treated as a plain hostname on port 6379.
